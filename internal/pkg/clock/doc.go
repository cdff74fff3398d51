// Package clock hides the wall clock behind Clocker so time-dependent code
// (rate limit windows, response timestamps) can be driven by Fixed in tests.
package clock
