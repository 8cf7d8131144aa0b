// Package prompt renders the generator and reviewer prompts.
//
// # Embedded Defaults
//
// Default templates are embedded at compile time from the defaults/ directory:
//   - defaults/initial.md - first draft for a job
//   - defaults/edit.md    - revision driven by reviewer feedback
//   - defaults/review.md  - approve/reject check
//
// Templates use text/template syntax. A reference to a field the template
// data does not define is an error, not an empty string.
//
// # Runtime Customization
//
// A file with the same name in the prompts directory (.cvtailor/prompts by
// default) replaces the embedded template. 'cvtailor init' writes the defaults
// there; 'cvtailor init --reset' overwrites them.
package prompt
