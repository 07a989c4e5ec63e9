package models

// OverrideSourceUI tags override records written through the portal's own
// commit path; other provenance values are reserved for bulk imports.
const OverrideSourceUI = "ui"

// Allowed values for the enumerated catalog fields. The field validator and
// the schema metadata endpoint share these.
var (
	IsEolValues = []string{"Active", "EOL"}

	PatchingResponsibilityValues = []string{"Vendor", "User", "Shared"}

	AppRelevanceValues = []string{"Relevant", "Irrelevant"}

	// DeviceTypeValues backs the device_type combobox in the portal's edit
	// forms. The set mirrors the device families present in the gold feed.
	DeviceTypeValues = []string{
		"PLC",
		"HMI",
		"Drive",
		"Controller",
		"Robot",
		"Sensor",
		"Gateway",
		"Workstation",
		"Server",
		"Network Device",
		"Imaging",
		"Patient Monitor",
		"Infusion Pump",
		"Other",
	}
)
