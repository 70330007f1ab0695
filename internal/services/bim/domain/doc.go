// Package domain implements the BIM capabilities exposed through the bridge:
// status and element queries, creation of datums and model elements,
// filtering, element operations and room export.
//
// Every length on the wire is in millimetres and every angle in degrees.
// Operations convert to the document's feet and radians once, on entry, and
// back once when building the response.
package domain
