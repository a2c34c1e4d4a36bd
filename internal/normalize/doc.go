// Package normalize converts raw command output into structured data.
//
// Every backend hands its raw textual output to this package. Normalize
// implements the two-shape contract used throughout the report:
//
//   - output that decodes as JSON is returned as the decoded value
//   - anything else becomes the trimmed, non-empty lines of the text
//
// Normalize never fails: the line fallback accepts any input, trading
// precision for total availability.
//
// Literal is the permissive variant used only by the Kubernetes backend.
// Commands executed inside scheduler pods historically print
// Python-literal-style structures (single-quoted strings, True/None,
// tuples) rather than strict JSON, so that backend parses with Literal
// instead. The asymmetry is deliberate; unifying it would change the
// observed output shape for existing callers.
package normalize
