// Package alarm implements the gRPC transport for the alarm clock daemon.
//
// The service is described by hand with protobuf well-known types: requests
// and responses are google.protobuf.Struct documents and the state query takes
// google.protobuf.Empty. The package holds the service descriptor, a client
// stub, the document converters and a server that calls into the controller.
package alarm
