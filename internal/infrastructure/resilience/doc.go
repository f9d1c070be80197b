/*
Package resilience provides the circuit breaker guarding outgoing requests.

# Overview

A Breaker stops calling a target after repeated transport failures and
lets a few probe requests through once its timeout passes. A Group keeps
one breaker per target host, so a conversation that visits several sites
only fails fast for the one that is down.

# Usage

	group := resilience.NewGroup(resilience.Settings{
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: resilience.ConsecutiveFailures(5),
	})

	err := group.Get(u.Host).Execute(func() error {
		resp, err = client.Do(req)
		return err
	})

# States

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                    [failure]
	                                           |
	                                           v
	                                         Open
*/
package resilience
