// Package discovery resolves target selectors against the replicating source
// servers known to MGN. The merge engine receives an already-filtered target
// list from here: archived servers, the propagation source itself and servers
// in a terminal or unready lifecycle state never reach a merge pass.
package discovery

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/mgn"
	mgntypes "github.com/aws/aws-sdk-go-v2/service/mgn/types"
	"github.com/k0kubun/pp/v3"
)

// SelectorKind discriminates the three target selector forms.
type SelectorKind int

const (
	SelectServers SelectorKind = iota
	SelectAll
	SelectTag
)

// Selector names the servers a command operates on: an explicit id list, a
// tag predicate, or every replicating server.
type Selector struct {
	Kind      SelectorKind
	ServerIDs []string
	TagKey    string
	TagValue  string
}

// ParseSelector parses the --target argument: comma separated "s-" server
// ids, the literal "all", or a key=value tag pair whose value may be "*".
func ParseSelector(raw string) (*Selector, error) {
	switch {
	case strings.HasPrefix(raw, "s-"):
		return &Selector{Kind: SelectServers, ServerIDs: strings.Split(raw, ",")}, nil
	case raw == "all":
		return &Selector{Kind: SelectAll}, nil
	case strings.Contains(raw, "="):
		key, value, _ := strings.Cut(raw, "=")
		return &Selector{Kind: SelectTag, TagKey: key, TagValue: value}, nil
	}
	return nil, fmt.Errorf("incorrect target %q: expected comma separated server ids, 'all', or a key=value pair", raw)
}

// Resolve lists the non-archived source servers matching the selector,
// excluding excludeServerID (the propagation source may match its own tag or
// "all" selector) and every server whose lifecycle state disqualifies it.
func Resolve(ctx context.Context, client mgn.DescribeSourceServersAPIClient, sel *Selector, excludeServerID string) ([]mgntypes.SourceServer, error) {
	filters := &mgntypes.DescribeSourceServersRequestFilters{
		IsArchived: aws.Bool(false),
	}
	if sel.Kind == SelectServers {
		filters.SourceServerIDs = sel.ServerIDs
	}

	servers, err := ListSourceServers(ctx, client, filters)
	if err != nil {
		return nil, err
	}

	result := make([]mgntypes.SourceServer, 0, len(servers))
	for _, server := range servers {
		if sel.Kind == SelectTag && !MatchTag(server, sel.TagKey, sel.TagValue) {
			continue
		}
		if excludeServerID != "" && aws.ToString(server.SourceServerID) == excludeServerID {
			continue
		}
		state := lifecycleState(server)
		if ExcludedLifecycleState(state) {
			pp.Printf("Unable to update target server %v due to it being in %v state\n",
				aws.ToString(server.SourceServerID), string(state))
			continue
		}
		result = append(result, server)
	}
	return result, nil
}

// ListSourceServers pages through DescribeSourceServers for the given filters.
func ListSourceServers(ctx context.Context, client mgn.DescribeSourceServersAPIClient, filters *mgntypes.DescribeSourceServersRequestFilters) ([]mgntypes.SourceServer, error) {
	var servers []mgntypes.SourceServer
	paginator := mgn.NewDescribeSourceServersPaginator(client, &mgn.DescribeSourceServersInput{
		Filters: filters,
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		servers = append(servers, page.Items...)
	}
	return servers, nil
}

// MatchTag reports whether a server carries the given tag. A value of "*"
// matches any value for the key.
func MatchTag(server mgntypes.SourceServer, key, value string) bool {
	v, ok := server.Tags[key]
	if !ok {
		return false
	}
	return value == "*" || v == value
}

// ExcludedLifecycleState reports whether a lifecycle state disqualifies a
// server from being updated: disconnected and cutover servers are done, and
// merely discovered ones have no launch configuration yet.
func ExcludedLifecycleState(state mgntypes.LifeCycleState) bool {
	switch state {
	case mgntypes.LifeCycleStateDisconnected, mgntypes.LifeCycleStateCutover, mgntypes.LifeCycleStateDiscovered:
		return true
	}
	return false
}

// FindByHostname returns the first server whose identification hints carry
// the given hostname, or nil.
func FindByHostname(servers []mgntypes.SourceServer, hostname string) *mgntypes.SourceServer {
	for i, server := range servers {
		if server.SourceProperties == nil || server.SourceProperties.IdentificationHints == nil {
			continue
		}
		if aws.ToString(server.SourceProperties.IdentificationHints.Hostname) == hostname {
			return &servers[i]
		}
	}
	return nil
}

func lifecycleState(server mgntypes.SourceServer) mgntypes.LifeCycleState {
	if server.LifeCycle == nil {
		return ""
	}
	return server.LifeCycle.State
}
