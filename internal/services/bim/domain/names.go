package domain

// Command names. Callers address capabilities by these strings.
const (
	CommandGetRevitStatus            = "get_revit_status"
	CommandGetElementInfo            = "get_element_info"
	CommandCreateLevel               = "create_level"
	CommandCreateGrid                = "create_grid"
	CommandCreateLineBasedElement    = "create_line_based_element"
	CommandCreatePointBasedElement   = "create_point_based_element"
	CommandCreateSurfaceBasedElement = "create_surface_based_element"
	CommandCreateRoom                = "create_room"
	CommandAIElementFilter           = "ai_element_filter"
	CommandOperateElement            = "operate_element"
	CommandExportRoomData            = "export_room_data"
)
