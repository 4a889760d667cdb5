/*
Velociraptor - Dig Deeper
Copyright (C) 2019-2025 Rapid7 Inc.

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published
by the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package identity

import (
	"context"
	"strconv"

	"github.com/Velocidex/ttlcache/v2"
	"www.velocidex.com/golang/procwatch/logging"
)

// Resolver answers id to name lookups. Not found is reported with a
// false result, failures with an error.
type Resolver interface {
	ResolveUserName(ctx context.Context, uid int) (string, bool, error)
	ResolveGroupName(ctx context.Context, gid int) (string, bool, error)
	ResolveProjectName(ctx context.Context, id int) (string, bool, error)
	ResolveZoneName(ctx context.Context, id int) (string, bool, error)
}

type resolveFunc func(ctx context.Context, id int) (string, bool, error)

const (
	KIND_USER    = "user"
	KIND_GROUP   = "group"
	KIND_PROJECT = "project"
	KIND_ZONE    = "zone"
)

type Stats struct {
	Kind   string
	Size   int64
	Hits   int64
	Misses int64
}

// Cache remembers id to name bindings for the lifetime of its owner.
// Ids without a name are cached as their decimal string so they are
// only looked up once. Entries never expire.
type Cache struct {
	resolver Resolver

	users    *ttlcache.Cache
	groups   *ttlcache.Cache
	projects *ttlcache.Cache
	zones    *ttlcache.Cache
}

func NewCache(resolver Resolver) *Cache {
	return &Cache{
		resolver: resolver,
		users:    ttlcache.NewCache(),
		groups:   ttlcache.NewCache(),
		projects: ttlcache.NewCache(),
		zones:    ttlcache.NewCache(),
	}
}

func (self *Cache) lookup(ctx context.Context,
	lru *ttlcache.Cache, id int, resolve resolveFunc) (string, error) {
	key := strconv.Itoa(id)

	cached, err := lru.Get(key)
	if err == nil {
		name, ok := cached.(string)
		if ok {
			return name, nil
		}
	}

	// Concurrent misses may both ask the resolver. They store the
	// same value so the race is harmless.
	name, pres, err := resolve(ctx, id)
	if err != nil {
		return "", err
	}

	if !pres {
		name = key
	}

	// The name is still good even if it could not be remembered, e.g.
	// after Close().
	err = lru.Set(key, name)
	if err != nil {
		logger := logging.GetLogger(nil, &logging.GenericComponent)
		logger.Debug("identity: unable to cache %v: %v", key, err)
	}

	return name, nil
}

func (self *Cache) UserName(ctx context.Context, uid int) (string, error) {
	return self.lookup(ctx, self.users, uid, self.resolver.ResolveUserName)
}

func (self *Cache) GroupName(ctx context.Context, gid int) (string, error) {
	return self.lookup(ctx, self.groups, gid, self.resolver.ResolveGroupName)
}

func (self *Cache) ProjectName(ctx context.Context, id int) (string, error) {
	return self.lookup(ctx, self.projects, id, self.resolver.ResolveProjectName)
}

func (self *Cache) ZoneName(ctx context.Context, id int) (string, error) {
	return self.lookup(ctx, self.zones, id, self.resolver.ResolveZoneName)
}

func (self *Cache) Stats() []Stats {
	result := []Stats{}
	for _, item := range []struct {
		kind string
		lru  *ttlcache.Cache
	}{
		{KIND_USER, self.users},
		{KIND_GROUP, self.groups},
		{KIND_PROJECT, self.projects},
		{KIND_ZONE, self.zones},
	} {
		metrics := item.lru.GetMetrics()
		result = append(result, Stats{
			Kind:   item.kind,
			Size:   int64(item.lru.Count()),
			Hits:   metrics.Hits,
			Misses: metrics.Misses,
		})
	}
	return result
}

func (self *Cache) Close() {
	self.users.Close()
	self.groups.Close()
	self.projects.Close()
	self.zones.Close()
}
