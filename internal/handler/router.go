package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ssgb-dev/logbook-api/internal/middleware"
	"github.com/ssgb-dev/logbook-api/internal/models"
	"github.com/ssgb-dev/logbook-api/internal/repository"
	"github.com/ssgb-dev/logbook-api/internal/service"
)

// Services bundles everything the router needs.
type Services struct {
	Auth        *service.AuthService
	Users       *service.UserService
	Subjects    *service.SubjectService
	Records     *service.RecordService
	Locks       *service.LockService
	Assignments *service.AssignmentService
	Teacher     *service.TeacherService
	Importer    *service.ImporterService
	Exports     *service.ExportService
	Metrics     *service.MetricsService
	AuditRepo   *repository.UserRepository
}

// RegisterRoutes attaches every API route to the engine. Health, readiness,
// metrics and export downloads stay outside the JWT guard.
func RegisterRoutes(r *gin.Engine, svcs Services) {
	auth := NewAuthHandler(svcs.Auth)
	users := NewUserHandler(svcs.Users)
	subjects := NewSubjectHandler(svcs.Subjects)
	records := NewRecordHandler(svcs.Records, svcs.Locks, svcs.Metrics)
	admin := NewAdminHandler(svcs.Users, svcs.Assignments, svcs.Importer)
	teacher := NewTeacherHandler(svcs.Teacher)
	assignments := NewAssignmentHandler(svcs.Assignments)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	if svcs.Metrics != nil {
		r.GET("/metrics", gin.WrapH(svcs.Metrics.Handler()))
	}

	r.POST("/token", auth.Token)
	r.POST("/token/refresh", auth.Refresh)

	var exports *ExportHandler
	if svcs.Exports != nil {
		exports = NewExportHandler(svcs.Exports)
		r.GET("/exports/download/:token", exports.Download)
	}

	secured := r.Group("", middleware.JWT(svcs.Auth))

	me := secured.Group("/users")
	me.GET("/me", users.Me)
	me.PUT("/me", users.UpdateMe)

	subjectGroup := secured.Group("/subjects")
	subjectGroup.GET("", subjects.List)
	subjectGroup.POST("", middleware.RequireAdmin(), subjects.Create)
	subjectGroup.DELETE("/:id", middleware.RequireAdmin(), subjects.Delete)
	subjectGroup.POST("/bulk-delete", middleware.RequireAdmin(), subjects.BulkDelete)

	recordGroup := secured.Group("/records")
	recordGroup.GET("", records.List)
	recordGroup.POST("", middleware.RequireStaff(), records.Create)
	recordGroup.GET("/:id", records.Get)
	recordGroup.PUT("/:id", records.Update)
	recordGroup.DELETE("/:id", middleware.RequireStaff(),
		middleware.Audit(svcs.AuditRepo, models.AuditActionRecordDelete, "records"), records.Delete)
	recordGroup.PUT("/:id/permissions", middleware.RequireStaff(), records.UpdatePermissions)
	recordGroup.GET("/:id/lock", records.LockStatus)
	recordGroup.POST("/:id/lock", records.AcquireLock)
	recordGroup.DELETE("/:id/lock", records.ReleaseLock)
	recordGroup.PUT("/:id/lock/extend", records.ExtendLock)
	recordGroup.GET("/:id/versions", records.Versions)
	recordGroup.GET("/:id/comments", records.Comments)
	recordGroup.POST("/:id/comments", records.AddComment)

	adminGroup := secured.Group("/admin", middleware.RequireAdmin())
	adminGroup.GET("/users", admin.ListUsers)
	adminGroup.POST("/users",
		middleware.Audit(svcs.AuditRepo, models.AuditActionUserCreate, "users"), admin.CreateUser)
	adminGroup.POST("/users/bulk-upload", admin.BulkUploadUsers)
	adminGroup.POST("/users/bulk-delete", admin.BulkDeleteUsers)
	adminGroup.DELETE("/users/:id",
		middleware.Audit(svcs.AuditRepo, models.AuditActionUserDelete, "users"), admin.DeleteUser)
	adminGroup.PUT("/users/:id/reset-password", admin.ResetPassword)
	adminGroup.GET("/teacher-assignments", admin.ListTeacherAssignments)
	adminGroup.POST("/teacher-assignments", admin.CreateTeacherAssignment)
	adminGroup.PUT("/teacher-assignments/:id", admin.UpdateTeacherAssignment)
	adminGroup.DELETE("/teacher-assignments/:id", admin.DeleteTeacherAssignment)
	adminGroup.GET("/download-template/:type", admin.DownloadTemplate)
	adminGroup.POST("/import-excel/:type",
		middleware.Audit(svcs.AuditRepo, models.AuditActionExcelImport, "import"), admin.ImportExcel)
	adminGroup.POST("/import-teacher-assignments",
		middleware.Audit(svcs.AuditRepo, models.AuditActionExcelImport, "import"), admin.ImportTeacherAssignments)

	teacherGroup := secured.Group("/teacher", middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin))
	teacherGroup.GET("/my-assignments", teacher.MyAssignments)
	teacherGroup.GET("/my-classes", teacher.MyClasses)
	teacherGroup.GET("/my-subjects", teacher.MySubjects)
	teacherGroup.GET("/activity-subjects", teacher.ActivitySubjects)
	teacherGroup.GET("/subject-records", teacher.SubjectRecords)
	teacherGroup.GET("/activity-records", teacher.ActivityRecords)
	teacherGroup.GET("/accessible-records", teacher.AccessibleRecords)

	assignmentGroup := secured.Group("/assignments", middleware.RequireStaff())
	assignmentGroup.GET("/students", assignments.ListStudents)
	assignmentGroup.GET("/subject/:id/classes", assignments.SubjectClasses)
	assignmentGroup.GET("/subject/:id/students", assignments.SubjectStudents)
	assignmentGroup.POST("/classes-to-subject", assignments.AssignClasses)
	assignmentGroup.POST("/students-to-subject", assignments.AssignStudents)
	assignmentGroup.POST("/remove-class", assignments.RemoveClass)
	assignmentGroup.POST("/remove-students", assignments.RemoveStudents)

	if exports != nil {
		exportGroup := secured.Group("/exports", middleware.RequireStaff())
		exportGroup.POST("", exports.Create)
		exportGroup.GET("/:id", exports.Status)
	}
}
