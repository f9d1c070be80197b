/*
Package conversation drives a sequence of HTTP exchanges that share cookie
state, the way a browser session does.

# Overview

A WebConversation sends WebRequests through a transport.Transport. For each
exchange it attaches the jar's cookies for the target, adds default headers
and credentials, folds Set-Cookie headers back into the jar and follows
redirects up to a limit. A 401 carrying a Basic challenge is retried once
when credentials for the realm are known.

Pages load into frames. The main window is TopFrame; FetchFrames loads the
frames and iframes of a page under their names, sharing the same jar.

# Usage

	conv := conversation.New(client,
		conversation.WithLogger(logger),
		conversation.WithMetrics(metrics),
	)
	defer conv.Close()

	page, err := conv.Get(ctx, "http://localhost:8080/login")
	if err != nil {
		return err
	}
	forms, _ := conv.Forms(page)
	login := forms[0]
	if err := login.SetParameter("user", "alice"); err != nil {
		return err
	}
	next, err := conv.Submit(ctx, page, login)

# Errors

Parameter errors surface before anything is sent. Transport failures come
back as errs.KindTransport. Any other status is an ordinary response. With
StrictStatus set, 404 and 5xx responses and a 401 that no credentials could
answer are returned together with an error of the matching kind.

# Recording

A Recorder captures every exchange, redirect hops included, and writes
them as an HTTP Archive. Request bodies are kept up to SetMaxBodySize bytes.
WithTracer adds a span for each GetResponse with
a child span per hop.
*/
package conversation
