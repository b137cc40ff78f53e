// jobs runs exactly one maintenance operation and exits. Scheduling is owned
// by an external cron, never by an in-process timer.
//
// Usage:
//
//	jobs -job hashtag-trending-refresh
//	jobs -job hashtag-daily-reset
//	jobs -job hashtag-weekly-reset
//	jobs -job interest-decay [-decay_rate 0.95]
//	jobs -job feedcache-sweep
package main

import (
	"flag"

	"github.com/ripplehq/ripple/feed"
	"github.com/ripplehq/ripple/hashtag"
	"github.com/ripplehq/ripple/interest"
	. "github.com/ripplehq/ripple/utils"
	"github.com/ripplehq/ripple/utils/dotenv"
	. "github.com/ripplehq/ripple/utils/log"
)

var (
	jobName   = flag.String("job", "", "name of the maintenance job to run")
	decayRate = flag.Float64("decay_rate", interest.DefaultDecayRate, "multiplicative interest decay rate")
)

func main() {
	flag.Parse()

	if err := dotenv.LoadDotEnvs(); err != nil {
		Log.Fatal("fail to load env: ", err)
	}

	db, err := GetDBConnection()
	if err != nil {
		Log.Fatal("fail to connect database: ", err)
	}

	switch *jobName {
	case "hashtag-trending-refresh":
		err = hashtag.RefreshTrendingStatus(db)
	case "hashtag-daily-reset":
		err = hashtag.ResetDailyCounts(db)
	case "hashtag-weekly-reset":
		err = hashtag.ResetWeeklyCounts(db)
	case "interest-decay":
		err = interest.DecayWeights(db, *decayRate)
	case "feedcache-sweep":
		err = feed.NewRedisCacheStore(GetRedisClient()).ClearExpired()
	default:
		Log.Fatal("unknown job: ", *jobName)
	}

	if err != nil {
		Log.Fatal("job ", *jobName, " failed: ", err)
	}
	Log.Info("job ", *jobName, " finished")
}
