package scroll

// Observer receives engine diagnostics. Implementations must not block.
// AnimationStarted and AnimationStopped are called with the engine lock held,
// so they are strictly ordered and must not call back into the engine.
type Observer interface {
	Classified(Verdict)
	Ticked(emitted bool)
	EmitFailed()
	AnimationStarted()
	AnimationStopped(StopReason)
	Rearmed(ok bool)
}

type nopObserver struct{}

func (nopObserver) Classified(Verdict)          {}
func (nopObserver) Ticked(bool)                 {}
func (nopObserver) EmitFailed()                 {}
func (nopObserver) AnimationStarted()           {}
func (nopObserver) AnimationStopped(StopReason) {}
func (nopObserver) Rearmed(bool)                {}
