package telemetry

// Span names used by the use-case layer.
const (
	SpanJoin         = "participation.join"
	SpanLeave        = "participation.leave"
	SpanConfirmPlace = "status.confirm_place"
	SpanFinish       = "status.finish"
	SpanCancel       = "status.cancel"
	SpanGetPlaces    = "poi.get_places"
)

// Attribute keys.
const (
	AttrMeetupID = "meetup.id"
	AttrMemberID = "member.id"
	AttrSource   = "poi.source"
)
