package models

// ServiceInfo is a read-only snapshot of the target service
type ServiceInfo struct {
	ID         string
	Name       string
	Attributes map[string]interface{}
}

// DisplayName returns the service name, or "Unknown" when the platform omitted it
func (s *ServiceInfo) DisplayName() string {
	if s.Name == "" {
		return "Unknown"
	}
	return s.Name
}
