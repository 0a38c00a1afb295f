package fluxo

// Version is the current release of the engine.
const Version = "0.1.0"
