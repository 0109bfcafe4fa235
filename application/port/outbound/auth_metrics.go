package outbound

// AuthEventRecorder counts login and authorization outcomes.
type AuthEventRecorder interface {
	ObserveLogin(outcome string)
	ObserveAuthorization(capability, outcome string)
}

type NoopAuthEventRecorder struct{}

func (NoopAuthEventRecorder) ObserveLogin(string)                 {}
func (NoopAuthEventRecorder) ObserveAuthorization(string, string) {}
