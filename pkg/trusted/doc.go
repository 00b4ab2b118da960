// Package trusted implements the Trusted class attribute: a
// capability extension carried inside a compiled class. The
// attribute embeds its own secure constant pool holding public
// keys and signatures, plus the permits and domains a loader
// consults before letting foreign code subclass the class or
// touch its class-private members.
//
// The package only stores and moves key and signature blobs.
// Producing and checking signatures is left to a cryptographic
// service provider, and enforcing the capability is left to the
// verifier that consumes a decoded Attribute.
package trusted
