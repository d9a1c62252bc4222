// Copyright 2021-2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/anchorproof/blob/master/LICENSE.md

package redisutil

import (
	"fmt"
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisClientFromURL creates a new Redis client based on the provided URL.
// The URL scheme can be either `redis` or `redis+sentinel`.
func RedisClientFromURL(redisUrl string) (redis.UniversalClient, error) {
	if redisUrl == "" {
		return nil, nil
	}
	u, err := url.Parse(redisUrl)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "redis+sentinel" {
		redisOptions, err := parseFailoverRedisUrl(u)
		if err != nil {
			return nil, err
		}
		return redis.NewFailoverClient(redisOptions), nil
	}
	redisOptions, err := redis.ParseURL(redisUrl)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(redisOptions), nil
}

// parseFailoverRedisUrl reads a sentinel URL of the form
//
//	redis+sentinel://:<password>@<host1>:<port1>,<host2>:<port2>/<master_name>/<db_number>?dial_timeout=3s&max_retries=2
func parseFailoverRedisUrl(u *url.URL) (*redis.FailoverOptions, error) {
	o := &redis.FailoverOptions{}
	if u.User != nil {
		o.SentinelPassword, _ = u.User.Password()
	}
	o.SentinelAddrs = sentinelAddresses(u.Host)
	f := strings.FieldsFunc(u.Path, func(r rune) bool {
		return r == '/'
	})
	switch len(f) {
	case 0:
		return nil, fmt.Errorf("redis: master name is required")
	case 1:
		o.MasterName = f[0]
	case 2:
		o.MasterName = f[0]
		db, err := strconv.Atoi(f[1])
		if err != nil {
			return nil, fmt.Errorf("redis: invalid database number: %q", f[1])
		}
		o.DB = db
	default:
		return nil, fmt.Errorf("redis: invalid URL path: %s", u.Path)
	}
	return setupConnParams(u.Query(), o)
}

func sentinelAddresses(hosts string) []string {
	var addresses []string
	for _, urlHost := range strings.Split(hosts, ",") {
		host, port, err := net.SplitHostPort(urlHost)
		if err != nil {
			host = urlHost
		}
		if host == "" {
			host = "localhost"
		}
		if port == "" {
			port = "26379"
		}
		addresses = append(addresses, net.JoinHostPort(host, port))
	}
	return addresses
}

func setupConnParams(q url.Values, o *redis.FailoverOptions) (*redis.FailoverOptions, error) {
	var err error
	for name, values := range q {
		value := values[len(values)-1]
		switch name {
		case "db":
			o.DB, err = strconv.Atoi(value)
		case "max_retries":
			o.MaxRetries, err = strconv.Atoi(value)
		case "pool_size":
			o.PoolSize, err = strconv.Atoi(value)
		case "dial_timeout":
			o.DialTimeout, err = parseDuration(value)
		case "read_timeout":
			o.ReadTimeout, err = parseDuration(value)
		case "write_timeout":
			o.WriteTimeout, err = parseDuration(value)
		case "idle_timeout":
			o.IdleTimeout, err = parseDuration(value)
		default:
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("redis: invalid %s %q: %w", name, value, err)
		}
	}
	var unknown []string
	for name := range q {
		switch name {
		case "db", "max_retries", "pool_size", "dial_timeout", "read_timeout", "write_timeout", "idle_timeout":
		default:
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("redis: unexpected option: %s", strings.Join(unknown, ", "))
	}
	return o, nil
}

// parseDuration accepts plain seconds as well as Go durations.
func parseDuration(s string) (time.Duration, error) {
	if i, err := strconv.Atoi(s); err == nil {
		if i <= 0 {
			// disable timeouts
			return -1, nil
		}
		return time.Duration(i) * time.Second, nil
	}
	return time.ParseDuration(s)
}
