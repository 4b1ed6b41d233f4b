// Package model defines the questionnaire payload consumed by the session
// controller and the renderers: the form metadata, its ordered questions with
// their variant-typed answers, and the rows nested under table questions.
// Snapshots are immutable once published; WithAnswer returns a new Payload
// that shares every untouched question with its parent. The question type tag
// is a closed set dispatched through Visitor, so adding a variant is a
// compile-time decision for every renderer.
package model
