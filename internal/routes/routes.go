package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/gigfolio/gigfolio-backend/internal/handlers"
	"github.com/gigfolio/gigfolio-backend/internal/middleware"
	"github.com/gigfolio/gigfolio-backend/internal/realtime"
	"github.com/gigfolio/gigfolio-backend/internal/services/mailer"
	"github.com/gigfolio/gigfolio-backend/internal/services/payments"
	"github.com/gigfolio/gigfolio-backend/internal/services/quota"
)

// Deps carries everything the route tree needs. Hub, RDB, Stripe and
// Mailer may be nil in tests; the handlers degrade to DB-only behavior.
type Deps struct {
	DB        *gorm.DB
	Hub       *realtime.Hub
	RDB       *redis.Client
	Stripe    *payments.StripeService
	Mailer    mailer.Mailer
	JWTSecret string
	ExpiresIn int

	UploadDir  string
	AppBaseURL string

	GoogleClientID  string
	GoogleSecret    string
	GoogleRedirect  string
	FrontendBaseURL string
}

func Setup(app *fiber.App, d Deps) {
	quotaSvc := quota.NewQuotaService(d.DB)

	authH := &handlers.AuthHandler{DB: d.DB, JWTSecret: d.JWTSecret, Expires: d.ExpiresIn}
	googleH := &handlers.GoogleOAuthHandler{
		DB:              d.DB,
		JWTSecret:       d.JWTSecret,
		Expires:         d.ExpiresIn,
		GoogleClientID:  d.GoogleClientID,
		GoogleSecret:    d.GoogleSecret,
		GoogleRedirect:  d.GoogleRedirect,
		FrontendBaseURL: d.FrontendBaseURL,
	}
	userH := handlers.NewUserHandler(d.DB, d.UploadDir, d.AppBaseURL)
	taskH := handlers.NewTaskHandler(d.DB, quotaSvc)
	bidH := handlers.NewBidHandler(d.DB)
	notifH := handlers.NewNotificationHandler(d.DB, d.Hub, d.RDB)
	assignH := handlers.NewAssignmentHandler(d.DB, notifH, d.UploadDir, d.AppBaseURL)
	payH := handlers.NewPaymentHandler(d.DB, d.Stripe, d.Mailer)
	chatH := handlers.NewChatHandler(d.DB, d.Hub, d.RDB)
	reviewH := handlers.NewReviewHandler(d.DB)
	adminH := handlers.NewAdminHandler(d.DB, notifH)

	api := app.Group("/api")

	// public
	auth := api.Group("/auth")
	auth.Post("/register", authH.Register)
	auth.Post("/login", authH.Login)
	auth.Post("/logout", authH.Logout)
	auth.Get("/google", googleH.GoogleStart)
	auth.Get("/google/callback", googleH.GoogleCallback)

	// everything below requires a valid cookie token
	authed := api.Group("/", middleware.JWTFromCookie(d.JWTSecret), middleware.AttachJWTLocals())

	users := authed.Group("/users")
	users.Get("/me", userH.Me)
	users.Put("/me", userH.UpdateProfile)
	users.Post("/me/picture", userH.UploadProfilePic)
	users.Get("/search", userH.SearchUsers)
	users.Get("/:id", userH.GetUser)

	tasks := authed.Group("/tasks")
	tasks.Post("", taskH.Create)
	tasks.Get("", taskH.ListPublic)
	tasks.Get("/mine", taskH.ListMine)
	tasks.Get("/:id", taskH.GetByID)
	tasks.Put("/:id", taskH.Update)
	tasks.Delete("/:id", taskH.Delete)
	tasks.Get("/:taskId/bids", bidH.ListByTask)
	tasks.Get("/:taskId/reviews", reviewH.ListByTask)
	tasks.Get("/:taskId/assignment", assignH.GetForTask)

	bids := authed.Group("/bids")
	bids.Post("", bidH.Place)
	bids.Get("/mine", bidH.ListMine)
	bids.Get("/check/:taskId", bidH.CheckAlreadyBid)
	bids.Get("/:id/can-edit", bidH.CanEdit)
	bids.Put("/:id", bidH.Update)
	bids.Delete("/:id", bidH.Delete)

	assignments := authed.Group("/assignments")
	assignments.Post("", assignH.Assign)
	assignments.Get("/assigned", assignH.ListAssigned)
	assignments.Get("/submitted", assignH.ListSubmitted)
	assignments.Post("/:id/work", assignH.UploadWork)
	assignments.Post("/:id/verify", assignH.Verify)

	payment := authed.Group("/payments")
	payment.Post("/intent", payH.CreateIntent)
	payment.Post("/confirm-task", payH.ConfirmTaskPayment)
	payment.Post("/subscription", payH.PurchaseSubscription)
	payment.Get("/subscription", payH.GetMySubscription)

	notifications := authed.Group("/notifications")
	notifications.Get("", notifH.List)
	notifications.Get("/unread-count", notifH.UnreadCount)
	notifications.Patch("/read-all", notifH.MarkAllRead)
	notifications.Patch("/:id/read", notifH.MarkRead)
	notifications.Delete("/all", notifH.DeleteAll)
	notifications.Delete("/:id", notifH.Delete)

	chats := authed.Group("/chats")
	chats.Post("", chatH.Send)
	chats.Get("/unread-count", chatH.UnreadTotal)
	chats.Get("/:userId", chatH.GetConversation)
	chats.Patch("/:userId/read", chatH.MarkConversationRead)
	chats.Put("/message/:id", chatH.Edit)
	chats.Delete("/message/:id", chatH.Delete)

	reviews := authed.Group("/reviews")
	reviews.Post("", reviewH.Create)
	reviews.Put("/:id", reviewH.Update)
	reviews.Delete("/:id", reviewH.Delete)

	authed.Post("/approval-request", adminH.RequestApproval)

	admin := authed.Group("/admin", middleware.RequireAdmin())
	admin.Get("/users", adminH.ListUsers)
	admin.Patch("/users/:id/approval", adminH.UpdateUserApproval)
	admin.Patch("/users/:id/role", adminH.UpdateUserRole)
	admin.Patch("/users/:id/status", adminH.UpdateUserStatus)
	admin.Get("/subscriptions", adminH.ListSubscriptions)
	admin.Get("/reports", adminH.Reports)

	if d.Hub != nil {
		app.Use("/ws", handlers.WebSocketUpgrade)
		app.Get("/ws", chatH.WebSocket())
	}
}
