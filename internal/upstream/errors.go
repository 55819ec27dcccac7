package upstream

import "github.com/tokengate/tokengate/internal/types"

func errUpstreamTimeout() *types.GatewayError {
	return types.ErrUpstreamTimeout("Upstream request timed out")
}

func errUpstreamTransport() *types.GatewayError {
	return types.ErrUpstreamTransport("OpenAI API request failed")
}

func errInvalidUpstreamResponse() *types.GatewayError {
	return types.ErrUpstreamResponse("Invalid response from OpenAI")
}
