package auth

import (
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// Route paths served by the controllers
const (
	RouteLogin          = "/api/v1/auth/login"
	RouteChangePassword = "/api/v1/auth/change-password"
	RouteUsers          = "/api/v1/users"
	RouteUser           = "/api/v1/users/:id"
	RouteMe             = "/api/v1/me"
	RouteDepartments    = "/api/v1/departments"
	RouteDepartment     = "/api/v1/departments/:id"
)

type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

type ChangePasswordRequest struct {
	Email       string `json:"email" form:"email"`
	OldPassword string `json:"oldPassword" form:"oldPassword"`
	NewPassword string `json:"newPassword" form:"newPassword"`
}

func (r ChangePasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.OldPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required),
	)
}

// AuthController serves the public login and password change endpoints
type AuthController struct {
	Debug  bool
	Logger Logger
	Auther *Auther
}

func NewAuthController(auther *Auther) *AuthController {
	return &AuthController{
		Auther: auther,
		Logger: defLogger{},
	}
}

func (a *AuthController) WithLogger(l Logger) *AuthController {
	if l != nil {
		a.Logger = l
	}
	return a
}

// RegisterRoutes mounts the controller on router
func (a *AuthController) RegisterRoutes(router fiber.Router) {
	router.Post(RouteLogin, a.LoginPost).Name("auth.login")
	router.Post(RouteChangePassword, a.ChangePasswordPost).Name("auth.change-password")
}

func (a *AuthController) LoginPost(c *fiber.Ctx) error {
	payload := new(LoginRequest)
	if err := c.BodyParser(payload); err != nil {
		return badRequest(err, "invalid request body")
	}

	if err := payload.Validate(); err != nil {
		return badRequest(err, "invalid login request")
	}

	if a.Debug {
		a.Logger.Debug("login request: %s", print.MaybePrettyJSON(LoginRequest{Email: payload.Email, Password: "***"}))
	}

	result, err := a.Auther.Login(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return err
	}

	return Respond(c, fiber.StatusOK, result)
}

func (a *AuthController) ChangePasswordPost(c *fiber.Ctx) error {
	payload := new(ChangePasswordRequest)
	if err := c.BodyParser(payload); err != nil {
		return badRequest(err, "invalid request body")
	}

	if err := payload.Validate(); err != nil {
		return badRequest(err, "invalid change password request")
	}

	if err := a.Auther.ChangePassword(c.UserContext(), payload.Email, payload.OldPassword, payload.NewPassword); err != nil {
		return err
	}

	return Respond(c, fiber.StatusOK, nil)
}

// UserController serves principal records to authenticated callers
type UserController struct {
	Users       *UserService
	Provisioner *Provisioner
}

func NewUserController(users *UserService, provisioner *Provisioner) *UserController {
	return &UserController{Users: users, Provisioner: provisioner}
}

// RegisterRoutes mounts the controller on router. The bearer middleware
// must already be installed upstream.
func (u *UserController) RegisterRoutes(router fiber.Router) {
	authenticated := RequireAuthenticated()
	router.Get(RouteMe, authenticated, u.Me).Name("users.me")
	router.Get(RouteUsers, authenticated, u.List).Name("users.list")
	router.Get(RouteUser, authenticated, u.Get).Name("users.get")
	if u.Provisioner != nil {
		router.Post(RouteUsers, RequireRoles(RoleAdmin), u.Create).Name("users.create")
	}
}

func (u *UserController) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return badRequest(err, "invalid user id")
	}

	principal, err := u.Users.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return Respond(c, fiber.StatusOK, principal)
}

func (u *UserController) List(c *fiber.Ctx) error {
	page := NewPage(c.QueryInt("page", 0), c.QueryInt("size", DefaultPageSize))

	list, err := u.Users.List(c.UserContext(), page)
	if err != nil {
		return err
	}
	return Respond(c, fiber.StatusOK, list)
}

func (u *UserController) Me(c *fiber.Ctx) error {
	principal, err := u.Users.Me(c.UserContext())
	if err != nil {
		return err
	}
	return Respond(c, fiber.StatusOK, principal)
}

func (u *UserController) Create(c *fiber.Ctx) error {
	payload := new(RegisterPrincipalMessage)
	if err := c.BodyParser(payload); err != nil {
		return badRequest(err, "invalid request body")
	}

	actor, _ := CurrentPrincipal(c.UserContext())
	created, err := u.Provisioner.Register(c.UserContext(), actorFromPrincipal(actor), *payload)
	if err != nil {
		return err
	}
	return Respond(c, fiber.StatusCreated, created)
}

type DepartmentRequest struct {
	Name string `json:"name" form:"name"`
}

// DepartmentController lets administrators manage departments
type DepartmentController struct {
	Departments DepartmentStore
}

func NewDepartmentController(departments DepartmentStore) *DepartmentController {
	return &DepartmentController{Departments: departments}
}

// RegisterRoutes mounts the controller on router. Every route requires the
// ADMIN role and the bearer middleware installed upstream.
func (d *DepartmentController) RegisterRoutes(router fiber.Router) {
	admin := RequireRoles(RoleAdmin)
	router.Get(RouteDepartments, admin, d.List).Name("departments.list")
	router.Post(RouteDepartments, admin, d.Create).Name("departments.create")
	router.Get(RouteDepartment, admin, d.Get).Name("departments.get")
	router.Put(RouteDepartment, admin, d.Update).Name("departments.update")
	router.Delete(RouteDepartment, admin, d.Delete).Name("departments.delete")
}

func (d *DepartmentController) List(c *fiber.Ctx) error {
	page := NewPage(c.QueryInt("page", 0), c.QueryInt("size", DefaultPageSize))

	list, err := d.Departments.List(c.UserContext(), page)
	if err != nil {
		return err
	}
	return Respond(c, fiber.StatusOK, list)
}

func (d *DepartmentController) Get(c *fiber.Ctx) error {
	id, err := departmentID(c)
	if err != nil {
		return err
	}

	department, err := d.Departments.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return Respond(c, fiber.StatusOK, department)
}

func (d *DepartmentController) Create(c *fiber.Ctx) error {
	payload := new(DepartmentRequest)
	if err := c.BodyParser(payload); err != nil {
		return badRequest(err, "invalid request body")
	}

	department, err := d.Departments.Create(c.UserContext(), payload.Name)
	if err != nil {
		return err
	}
	return Respond(c, fiber.StatusCreated, department)
}

func (d *DepartmentController) Update(c *fiber.Ctx) error {
	id, err := departmentID(c)
	if err != nil {
		return err
	}

	payload := new(DepartmentRequest)
	if err := c.BodyParser(payload); err != nil {
		return badRequest(err, "invalid request body")
	}

	department, err := d.Departments.Update(c.UserContext(), id, payload.Name)
	if err != nil {
		return err
	}
	return Respond(c, fiber.StatusOK, department)
}

func (d *DepartmentController) Delete(c *fiber.Ctx) error {
	id, err := departmentID(c)
	if err != nil {
		return err
	}

	if err := d.Departments.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return Respond(c, fiber.StatusOK, nil)
}

func departmentID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, badRequest(err, "invalid department id")
	}
	return id, nil
}

func badRequest(err error, msg string) error {
	return goerrors.Wrap(err, goerrors.CategoryBadInput, msg).
		WithCode(goerrors.CodeBadRequest)
}
