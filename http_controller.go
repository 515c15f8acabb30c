package mediagrab

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-router/flash"
)

// RegisterAuthRoutes mounts the auth pages on the given router.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) *AuthController {
	controller := NewAuthController(opts...)

	app.Get(controller.Routes.Home, controller.HomeShow).
		SetName("home.get")

	app.Get(controller.Routes.Login, controller.LoginShow).
		SetName("sign-in.get")
	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("sign-in.post")

	app.Get(controller.Routes.Logout, controller.LogOut).
		SetName("sign-out.get")

	app.Get(controller.Routes.Register, controller.RegistrationShow).
		SetName("register.get")
	app.Post(controller.Routes.Register, controller.RegistrationCreate).
		SetName("register.post")

	app.Get(controller.Routes.Downloads, controller.DownloadsShow).
		SetName("downloads.get")

	return controller
}

type AuthControllerRoutes struct {
	Home      string
	Login     string
	Logout    string
	Register  string
	Downloads string
	Admin     string
}

type AuthControllerViews struct {
	Home      string
	Login     string
	Register  string
	Downloads string
	Admin     string
}

type AuthController struct {
	Debug        bool
	Logger       Logger
	Auther       *Auther
	API          *APIClient
	Routes       *AuthControllerRoutes
	Views        *AuthControllerViews
	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:       defLogger{},
		ErrorHandler: defaultErrHandler,
		Routes: &AuthControllerRoutes{
			Home:      "/",
			Login:     "/login",
			Logout:    "/logout",
			Register:  "/register",
			Downloads: "/downloads",
			Admin:     "/admin",
		},
		Views: &AuthControllerViews{
			Home:      "home",
			Login:     "login",
			Register:  "register",
			Downloads: "downloads",
			Admin:     "admin",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Auther == nil {
		panic("Missing Auther in auth controller...")
	}

	if c.API == nil {
		panic("Missing APIClient in auth controller...")
	}

	return c
}

// WithControllerAuther injects the authenticator the pages drive.
func WithControllerAuther(auther *Auther) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

// WithControllerAPI injects the API client used for page data.
func WithControllerAPI(api *APIClient) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.API = api
		return c
	}
}

// WithControllerLogger overrides the default logger.
func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

// WithControllerDebug turns on payload dumps.
func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

func (a *AuthController) session() Snapshot {
	return a.Auther.Session().Current()
}

func (a *AuthController) HomeShow(ctx router.Context) error {
	snap := a.session()
	return ctx.Render(a.Views.Home, router.ViewContext{
		"session_state": string(snap.State),
		"current_user":  snap.User,
	})
}

func (a *AuthController) LoginShow(ctx router.Context) error {
	if a.session().State == StateAuthenticated {
		return ctx.Redirect(a.Routes.Home, router.StatusSeeOther)
	}

	return ctx.Render(a.Views.Login, router.ViewContext{
		"errors": nil,
		"record": nil,
	})
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload: %v", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  UserMessage(err),
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Render(a.Views.Login, router.ViewContext{
			"errors": map[string]string{"form": "Failed to parse form"},
			"record": payload,
		})
	}

	if a.Debug {
		fmt.Println("======= AUTH LOGIN ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("=========================")
	}

	if err := a.Auther.Login(ctx.Context(), *payload); err != nil {
		a.Logger.Error("login failed: %v", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message": UserMessage(err),
		}).Render(a.Views.Login, router.ViewContext{
			"errors": map[string]string{"authentication": UserMessage(err)},
			"record": payload,
		})
	}

	return ctx.Redirect(a.Routes.Home, router.StatusSeeOther)
}

func (a *AuthController) LogOut(ctx router.Context) error {
	if err := a.Auther.Logout(ctx.Context()); err != nil {
		a.Logger.Error("logout: %v", err)
	}
	return ctx.Redirect(a.Routes.Home, router.StatusTemporaryRedirect)
}

func (a *AuthController) RegistrationShow(ctx router.Context) error {
	if a.session().State == StateAuthenticated {
		return ctx.Redirect(a.Routes.Home, router.StatusSeeOther)
	}

	return ctx.Render(a.Views.Register, router.ViewContext{
		"errors": map[string]string{},
		"record": RegisterRequest{},
	})
}

func (a *AuthController) RegistrationCreate(ctx router.Context) error {
	payload := new(RegisterRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register parse payload: %v", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  UserMessage(err),
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Render(a.Views.Register, router.ViewContext{
			"errors": map[string]string{"form": "Failed to parse form"},
			"record": payload,
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register validate payload: %v", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  "Please correct the highlighted fields.",
			"system_message": "Error validating payload",
		}).Render(a.Views.Register, router.ViewContext{
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
		})
	}

	if err := a.Auther.Register(ctx.Context(), *payload); err != nil {
		a.Logger.Error("register failed: %v", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  UserMessage(err),
			"system_message": "Error registering account",
		}).Render(a.Views.Register, router.ViewContext{
			"record": payload,
			"errors": map[string]string{"registration": UserMessage(err)},
		})
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Welcome to MediaGrab",
	}).Redirect(a.Routes.Home, fiber.StatusSeeOther)
}

func (a *AuthController) DownloadsShow(ctx router.Context) error {
	snap := a.session()
	if snap.State != StateAuthenticated {
		return ctx.Redirect(a.Routes.Login, router.StatusSeeOther)
	}

	downloads, err := a.API.ListDownloads(WithContext(ctx.Context(), snap.User))
	if err != nil {
		a.Logger.Error("downloads fetch: %v", err)
		return ctx.Render(a.Views.Downloads, router.ViewContext{
			"current_user": snap.User,
			"downloads":    nil,
			"errors":       map[string]string{"downloads": UserMessage(err)},
		})
	}

	return ctx.Render(a.Views.Downloads, router.ViewContext{
		"current_user": snap.User,
		"downloads":    downloads,
	})
}

// AdminShow renders the admin dashboard. Mount it behind the sessionware
// guard; the handler still re-checks the role in case it is wired bare.
func (a *AuthController) AdminShow(ctx router.Context) error {
	snap := a.session()
	if !snap.User.IsAdmin() {
		return ctx.Redirect(a.Routes.Home, router.StatusSeeOther)
	}

	reqCtx := WithContext(ctx.Context(), snap.User)

	stats, err := a.API.Stats(reqCtx)
	if err != nil {
		a.Logger.Error("admin stats fetch: %v", err)
		return a.ErrorHandler(ctx, err)
	}

	users, err := a.API.ListUsers(reqCtx)
	if err != nil {
		a.Logger.Error("admin users fetch: %v", err)
		return a.ErrorHandler(ctx, err)
	}

	if a.Debug {
		fmt.Println(print.MaybePrettyJSON(stats))
	}

	return ctx.Render(a.Views.Admin, router.ViewContext{
		"current_user": snap.User,
		"stats":        stats,
		"users":        users,
	})
}

func defaultErrHandler(c router.Context, err error) error {
	return c.Render("errors/500", router.ViewContext{
		"message": UserMessage(err),
	})
}
