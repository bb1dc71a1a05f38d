package middleware

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

// RequestLogger writes one logrus entry per request.
func RequestLogger() echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:    true,
		LogMethod:    true,
		LogURI:       true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			entry := logrus.WithFields(logrus.Fields{
				"status":     v.Status,
				"method":     v.Method,
				"uri":        v.URI,
				"latency":    v.Latency.String(),
				"remote_ip":  v.RemoteIP,
				"request_id": v.RequestID,
			})
			if session := SessionFrom(c); session != nil {
				entry = entry.WithField("user_id", session.UserID)
			}
			switch {
			case v.Status >= 500:
				if v.Error != nil {
					entry = entry.WithField("error", v.Error.Error())
				}
				entry.Error("request failed")
			case v.Status >= 400:
				entry.Warn("request rejected")
			default:
				entry.Info("request handled")
			}
			return nil
		},
	})
}
