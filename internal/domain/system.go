package domain

// System is an alarm system (subscription) on the account.
type System struct {
	ID      string
	Address string
	Version int
	Cameras []Camera
}

// Camera is a camera attached to a system. ID is the camera serial (uuid)
// used by the live-view endpoint.
type Camera struct {
	ID   string
	Name string
}
