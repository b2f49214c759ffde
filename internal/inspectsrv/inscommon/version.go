package inscommon

// ServerVersion is the version of the inspection server.
const ServerVersion = "0.1.0"

// ApiVersion is the version of the inspection API surface.
const ApiVersion = "0.1.0"
