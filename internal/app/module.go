package app

import (
	"net/http"

	"github.com/shandysiswandi/otpgate/internal/identity"
	"github.com/shandysiswandi/otpgate/internal/identity/inbound"
)

// publicEndpoints lists every route reachable without a session.
func publicEndpoints() map[string][]string {
	endpoints := inbound.PublicEndpoints()
	endpoints[http.MethodGet] = append(endpoints[http.MethodGet], "/health")
	return endpoints
}

func (a *App) initModules() error {
	a.router.GETRaw("/health", healthHandler(a.ready))

	if !a.config.GetBool("modules.identity.enabled") {
		return nil
	}

	return identity.New(identity.Dependency{
		DBConn:      a.dbConn,
		Goroutine:   a.goroutine,
		Router:      a.router,
		Idempotency: a.idemp,
		Messaging:   a.messaging,
		Storage:     a.storage,
		SMS:         a.sms,
		Mail:        a.mail,
		Config:      a.config,
		Instrument:  a.ins,
		UID:         a.uid,
		HMAC:        a.hmac,
		Password:    a.password,
		OTP:         a.otp,
		Secret:      a.secret,
		Clock:       a.clock,
		Validator:   a.validator,
		JWT:         a.jwt,
	})
}
