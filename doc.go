// Package auth provides stateless bearer token authentication and a small
// role based user directory on top of it.
//
// Tokens:
//   - TokenService signs HS256 JWTs whose subject is the decimal principal
//     id. Verification failures of any kind surface as ErrInvalidToken.
//   - RequestAuthenticator resolves the Authorization header once per
//     request and publishes a SecurityContext in the context.Context.
//     Requests without a bearer header continue anonymously, an invalid
//     token stops the request.
//
// Accounts:
//   - Principals are ACTIVE or INACTIVE. Provisioned accounts start
//     INACTIVE with the configured default password and become ACTIVE on
//     their first successful password change, driven by StatusMachine.
//   - Auther owns the login and change password flows and reports them to
//     an ActivitySink. Sinks run best-effort (errors are logged).
//
// Authorization:
//   - AccessPolicy applies the ADMIN > MANAGER > EMPLOYEE hierarchy. A
//     manager sees only the principals sharing one of their departments.
//   - Departments are administered by ADMIN principals through
//     DepartmentController over a DepartmentStore.
//
// Storage lives in the repository package, the HTTP surface in http.go and
// http_controller.go, and the daemon in cmd/authd.
package auth
