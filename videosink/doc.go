// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package videosink provides a display.Drawer that publishes what is drawn
// on it over HTTP, so an emulated panel can be watched from a browser.
//
// Two endpoints are provided. Sink itself is an http.Handler streaming
// "MJPEG" (https://en.wikipedia.org/wiki/Motion_JPEG), a multipart response
// where every part replaces the previous image; it is what IP cameras use and
// browsers display it in a plain <img> tag. Sink.WebSocket returns a handler
// sending each frame as a binary websocket message.
//
// Frames are PNG encoded by default, JPEG can be selected through
// Opts.Format or the "format" URL parameter. Images are magnified by
// Opts.Scale with nearest neighbour sampling so single pixels stay sharp.
// Drawing an image identical to the current one does not wake clients.
package videosink
