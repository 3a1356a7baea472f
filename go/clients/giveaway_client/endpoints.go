package giveaway_client

const (
	// API Endpoints, formatted with the giveaway id
	LatestParticipantEndpoint = "/giveaways/%d/participants/latest"
	DrawEndpoint              = "/giveaways/%d/draw"
	StateEndpoint             = "/api/giveaways/%d/state"
	FeedEndpoint              = "/ws/giveaways/%d"

	// Headers
	RequestedWithHeader = "X-Requested-With"
	RequestedWithValue  = "XMLHttpRequest"
	CookieHeader        = "Cookie"

	// Form fields
	CSRFField = "csrf_token"
)
