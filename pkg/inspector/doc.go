// Package inspector serves a live view of a mounted app.
//
// A Recorder wraps the app's dom.Document and logs every host operation.
// After each flush the Server turns the recorded operations and the current
// markup into a Frame and streams it to websocket clients. Clients may send
// Messages back to dispatch events into the document.
//
//	doc := dom.NewDocument()
//	rec := inspector.NewRecorder(doc)
//	app, _ := weave.CreateApp(root, weave.WithHost(rec))
//	_ = app.Mount(doc.Body())
//	srv := inspector.New(app, rec)
//	go app.Run(ctx)
//	_ = srv.ListenAndServe(ctx, ":7070")
//
// Routes:
//
//	GET /          HTML page that follows the stream
//	GET /snapshot  markup of the mount target
//	GET /ws        frames {"seq","ops","html"}; accepts {"target","event"}
//	GET /metrics   Prometheus metrics, when a gatherer is configured
package inspector
