// Package adapters provides the default implementations of the capability
// ports used by step definitions.
//
// # Adapters
//
//  1. **APIAdapter** (ports.API): sends JSON or form requests through a
//     transport.Requester, merging the World's default headers and storing
//     the response on World.Last.
//
//  2. **AuthAdapter** (ports.Auth): logs in through the API port and stores
//     the bearer token on the World, or fills the browser login form through
//     the UI port.
//
//  3. **RuleCleanup** (ports.Cleanup): registers reversal requests for
//     UUID-shaped ids saved into variables whose names match a CleanupRule.
//
// Browser and terminal adapters live in the browser and terminal
// subpackages.
//
// # Usage
//
//	client := transport.New(transport.ResolveBaseURL(cfg))
//	api := adapters.NewAPIAdapter(client)
//	auth := adapters.NewAuthAdapter(api, nil, cfg)
//	registrar := adapters.NewRuleCleanup(cfg)
package adapters
