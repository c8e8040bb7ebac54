package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/liventcord/LiventCord-sub002/internal/snowflake"
)

// idParams maps route params to the id validator they must pass.
var idParams = map[string]func(string) bool{
	"guildId":   snowflake.ValidID,
	"channelId": validChannelID,
	"messageId": snowflake.ValidID,
	"friendId":  snowflake.ValidUserID,
	"dmId":      snowflake.ValidUserID,
}

// ValidateIDParams rejects requests whose id route params have the wrong
// shape before any handler runs.
func ValidateIDParams() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			for _, name := range c.ParamNames() {
				valid, ok := idParams[name]
				if !ok {
					continue
				}
				if !valid(c.Param(name)) {
					return Error(c, http.StatusBadRequest, "INVALID_ID", "invalid "+name)
				}
			}
			return next(c)
		}
	}
}

// validChannelID accepts guild channel ids and DM channel ids.
func validChannelID(id string) bool {
	if snowflake.ValidID(id) {
		return true
	}
	n := snowflake.UserIDLength
	return len(id) == 2*n+1 && id[n] == '_'
}
