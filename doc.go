// Package forms provides template-driven dynamic form machinery for
// government application services.
//
// The conditional logic engine is in package 'conditional', form
// navigation and state in 'flow', and the HTTP service in 'service'.
// The 'formd' and 'formtool' commands are in cmd.
package forms
