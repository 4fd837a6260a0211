package internaldefs

import (
	authclient "github.com/mkovrig/authclient"
)

// CounterDef defines a public type used by authclient APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   authclient.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the session engine.
var CounterDefs = []CounterDef{
	{ID: authclient.MetricLoginSuccess, Name: "authclient_login_success_total", Help: "Credential submissions accepted by the server."},
	{ID: authclient.MetricLoginFailure, Name: "authclient_login_failure_total", Help: "Credential submissions rejected by the server."},
	{ID: authclient.MetricOTPVerifySuccess, Name: "authclient_otp_verify_success_total", Help: "Successful login OTP verifications."},
	{ID: authclient.MetricOTPVerifyFailure, Name: "authclient_otp_verify_failure_total", Help: "Failed login OTP verifications."},
	{ID: authclient.MetricOTPResend, Name: "authclient_otp_resend_total", Help: "Login OTP resend requests."},
	{ID: authclient.MetricLoginCancelled, Name: "authclient_login_cancelled_total", Help: "Login flows abandoned at the OTP step."},
	{ID: authclient.MetricLogout, Name: "authclient_logout_total", Help: "Logout operations."},
	{ID: authclient.MetricCheckAuthSuccess, Name: "authclient_check_auth_success_total", Help: "Startup session checks that restored an authenticated session."},
	{ID: authclient.MetricCheckAuthFallback, Name: "authclient_check_auth_fallback_total", Help: "Startup session checks that degraded to the unauthenticated state."},
	{ID: authclient.MetricRefreshSuccess, Name: "authclient_refresh_success_total", Help: "Successful access token refreshes."},
	{ID: authclient.MetricRefreshFailure, Name: "authclient_refresh_failure_total", Help: "Failed access token refreshes."},
	{ID: authclient.MetricResetRequest, Name: "authclient_reset_request_total", Help: "Password reset code requests, resends included."},
	{ID: authclient.MetricResetVerifySuccess, Name: "authclient_reset_verify_success_total", Help: "Successful reset OTP verifications."},
	{ID: authclient.MetricResetVerifyFailure, Name: "authclient_reset_verify_failure_total", Help: "Failed reset OTP verifications."},
	{ID: authclient.MetricResetConfirmSuccess, Name: "authclient_reset_confirm_success_total", Help: "Successful password reset confirmations."},
	{ID: authclient.MetricResetConfirmFailure, Name: "authclient_reset_confirm_failure_total", Help: "Failed password reset confirmations."},
	{ID: authclient.MetricPasswordChangeSuccess, Name: "authclient_password_change_success_total", Help: "Successful password changes."},
	{ID: authclient.MetricPasswordChangeFailure, Name: "authclient_password_change_failure_total", Help: "Failed password changes."},
}
