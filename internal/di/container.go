package di

import (
	"github.com/optread/optread-api/internal/handler"
	"github.com/optread/optread-api/internal/repository"
	"github.com/optread/optread-api/internal/service"
	"github.com/optread/optread-api/pkg/database"
	"github.com/optread/optread-api/pkg/mailer"
	"github.com/optread/optread-api/pkg/redis"
)

// ContainerConfig holds the dependencies needed to build the container
type ContainerConfig struct {
	DB             *database.PostgresDB
	Redis          *redis.Client
	Mailer         mailer.Mailer
	UserRepo       repository.UserRepository
	BookRepo       repository.BookRepository
	CategoryRepo   repository.CategoryRepository
	TrackingRepo   repository.TrackingCodeRepository
	SubscriberRepo repository.SubscriberRepository
	AuthConfig     *service.AuthServiceConfig
	// PublicURL is the frontend origin used in outbound links
	PublicURL string
}

// Container wires services and handlers together
type Container struct {
	AuthService       service.AuthService
	UserService       service.UserService
	BookService       service.BookService
	CategoryService   service.CategoryService
	TrackingService   service.TrackingService
	SubscriberService service.SubscriberService

	AuthHandler       *handler.AuthHandler
	UserHandler       *handler.UserHandler
	BookHandler       *handler.BookHandler
	CategoryHandler   *handler.CategoryHandler
	TrackingHandler   *handler.TrackingHandler
	SubscriberHandler *handler.SubscriberHandler
	HealthHandler     *handler.HealthHandler
}

// NewContainer builds the dependency graph
func NewContainer(cfg *ContainerConfig) *Container {
	authService := service.NewAuthService(cfg.UserRepo, cfg.Mailer, cfg.AuthConfig)
	userService := service.NewUserService(cfg.UserRepo, cfg.BookRepo)
	bookService := service.NewBookService(cfg.BookRepo)
	categoryService := service.NewCategoryService(cfg.CategoryRepo)
	trackingService := service.NewTrackingService(cfg.TrackingRepo)
	subscriberService := service.NewSubscriberService(cfg.SubscriberRepo, cfg.BookRepo, cfg.Mailer, cfg.PublicURL)

	return &Container{
		AuthService:       authService,
		UserService:       userService,
		BookService:       bookService,
		CategoryService:   categoryService,
		TrackingService:   trackingService,
		SubscriberService: subscriberService,

		AuthHandler:       handler.NewAuthHandler(authService),
		UserHandler:       handler.NewUserHandler(userService),
		BookHandler:       handler.NewBookHandler(bookService),
		CategoryHandler:   handler.NewCategoryHandler(categoryService),
		TrackingHandler:   handler.NewTrackingHandler(trackingService),
		SubscriberHandler: handler.NewSubscriberHandler(subscriberService),
		HealthHandler:     handler.NewHealthHandler(cfg.DB, cfg.Redis),
	}
}
