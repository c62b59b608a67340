// Package normalisers provides implementations of the Normaliser interface
// for the document formats a knowledge base is built from. Each normaliser
// knows how to extract text content and header metadata from a specific
// MIME type.
//
// Normalisers are registered with the Registry at startup. The registry
// dispatches each raw document to the highest-priority normaliser that
// claims its MIME type.
package normalisers
