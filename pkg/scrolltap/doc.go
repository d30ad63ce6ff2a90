// Package scrolltap provides the interception backends that feed the scroll
// engine and post its synthesized output: a Quartz event tap on macOS, an
// evdev grab paired with a uinput virtual mouse on Linux, and a scripted
// replay source used for simulation and tests on every platform.
package scrolltap
