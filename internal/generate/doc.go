// Package generate turns a question plus retrieved citations into a
// streamed answer. Two generators exist: Backend talks to Gemini
// through Genkit, Mock replays canned answers word by word. Both emit
// the same ordered event sequence so handlers treat them uniformly.
package generate
