// Package submitx is the client side of the mail relay: it turns a submit
// event on the email form into one POST to /send-email/ and writes the
// outcome into the status element.
//
// The page is injected. A FieldReader supplies the four field values, a
// StatusWriter receives the result text and an Event is the submit event.
// Every failure, whatever its cause, renders as FailureText; the cause is
// kept as an errx code for logging only.
//
//	client := submitx.NewClient("http://localhost:8080")
//	status := &submitx.StatusText{}
//	h := submitx.NewHandler(client, submitx.Form{"to": "a@b.c"}, status)
//	h.HandleSubmit(ctx, &submitx.SubmitEvent{})
//	fmt.Println(status.Text())
package submitx
