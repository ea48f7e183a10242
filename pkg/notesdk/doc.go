// Package notesdk is the Go client for the notebook HTTP API.
//
// Anonymous operations (registration, login, health) hang off Client. A
// successful Login returns a Session bound to the issued session token:
//
//	c := notesdk.New("http://localhost:8080")
//	sess, err := c.Login(ctx, "alice@example.com", "secret")
//	if err != nil {
//		return err
//	}
//	defer sess.Logout(ctx)
//
//	id, err := sess.CreateNote(ctx, "Groceries", "milk, eggs")
//
// Server errors are returned as *APIError. The request and response types
// are shared with the server handlers.
package notesdk
