// Package studentnum formats and orders student numbers. A student number is
// the grade followed by the two-digit class and two-digit number in class,
// e.g. grade 1 class 2 number 5 -> "10205".
package studentnum

import (
	"fmt"
	"sort"
)

// Placement identifies a student's seat within the school.
type Placement interface {
	StudentPlacement() (grade, classNumber, numberInClass int)
}

// Format renders the canonical student number string.
func Format(grade, classNumber, numberInClass int) string {
	return fmt.Sprintf("%d%02d%02d", grade, classNumber, numberInClass)
}

// Sort returns a copy of students ordered ascending by the numeric
// (grade, class, number) tuple. The sort is stable and the input slice is
// left untouched.
func Sort[T Placement](students []T) []T {
	out := make([]T, len(students))
	copy(out, students)
	sort.SliceStable(out, func(i, j int) bool {
		gi, ci, ni := out[i].StudentPlacement()
		gj, cj, nj := out[j].StudentPlacement()
		if gi != gj {
			return gi < gj
		}
		if ci != cj {
			return ci < cj
		}
		return ni < nj
	})
	return out
}
