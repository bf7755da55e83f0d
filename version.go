package flowcanvas

// Version is the release of the flowcanvas library and CLI.
const Version = "0.4.0"
