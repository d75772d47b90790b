// Package ui is the terminal display sink for logdeck, built on Bubble Tea.
//
// The model mirrors the rows the view synchronizer decides to show: every
// view instruction arrives as a message and is applied in Update, so the
// table on screen is always the result of replaying the instruction stream.
// Key presses never touch the core directly. They become commands that call
// the Controller off the Bubble Tea goroutine, and the effects come back as
// further instructions.
//
// Layout, top to bottom:
//
//   - header: listener state, client count, shown/total counts, PAUSED badge
//   - filter bar: severity, category and message inputs (toggle with f)
//   - table: time, source, severity, category and message columns
//   - status bar: key hints, the port prompt, or the last action result
//
// Theme and filter bar visibility persist through the prefs package.
package ui
