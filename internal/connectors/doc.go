// Package connectors provides implementations of the Connector interface
// for document sources. Each connector knows how to enumerate and fetch
// raw documents from one source type.
//
// Connectors are registered with the ConnectorFactory at startup. The
// filesystem connector is the built-in type; additional types register
// through Factory.Register.
package connectors
