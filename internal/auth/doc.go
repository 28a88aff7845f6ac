// Package auth signs readers in and out of the library.
//
// Accounts live in the accounts repository with a bcrypt credential hash.
// A successful Login returns a Session that the caller owns and passes to
// whatever needs to know who is reading; Logout closes it. There is no
// process-wide current user.
//
// # Administrator seed
//
// The administrator account is not created up front. The first Login with
// exactly the configured admin email and demo password creates it:
//
//	AUTH_ADMIN_EMAIL=admin@mymanga.com
//	AUTH_ADMIN_DEMO_PASSWORD=password
//
// Once the account exists the demo password is checked like any other.
//
// # Usage
//
//	svc := auth.NewService(accountsRepo, cfg.Auth)
//	session, err := svc.Login(ctx, email, password)
//	...
//	svc.Logout(session)
package auth
