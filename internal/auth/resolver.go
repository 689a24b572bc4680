package auth

// Mapping ties a logical connector name to the identifier the credential
// broker knows the service by, plus the auth mode the broker stores for it.
type Mapping struct {
	BrokerService string
	AuthType      AuthType
}

// serviceMap is the static table of connector-name → broker mapping entries.
// Services absent from this table pass through unchanged and default to
// oauth2, so new connectors work before the table catches up.
var serviceMap = map[string]Mapping{
	"gsheets":   {BrokerService: "google-sheet", AuthType: AuthTypeOAuth2},
	"gcalendar": {BrokerService: "google-calendar", AuthType: AuthTypeOAuth2},
	"gmail":     {BrokerService: "google-mail", AuthType: AuthTypeOAuth2},
	"gdocs":     {BrokerService: "google-docs", AuthType: AuthTypeOAuth2},
	"gdrive":    {BrokerService: "google-drive", AuthType: AuthTypeOAuth2},
	"gmaps":     {BrokerService: "google", AuthType: AuthTypeOAuth2},
	"gmeet":     {BrokerService: "google", AuthType: AuthTypeOAuth2},
	"firestore": {BrokerService: "google-firestore", AuthType: AuthTypeOAuth2},
	"notion":    {BrokerService: "notion", AuthType: AuthTypeOAuth2},
	"slack":     {BrokerService: "slack", AuthType: AuthTypeOAuth2},
	"tldv":      {BrokerService: "tldv", AuthType: AuthTypeAPIKey},
	"peakflo":   {BrokerService: "peakflo", AuthType: AuthTypeDelegated},
	"netsuite":  {BrokerService: "netsuite-tba", AuthType: AuthTypeTBA},
}

// Resolve maps a logical service name to its broker identifier and auth type.
// Unknown names are returned unchanged with the oauth2 default; this is a
// deliberate, auditable fallback rather than an error.
func Resolve(serviceName string) Mapping {
	if m, ok := serviceMap[serviceName]; ok {
		return m
	}
	return Mapping{BrokerService: serviceName, AuthType: AuthTypeOAuth2}
}
