package main

import (
	"context"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ripplehq/ripple/feed"
	"github.com/ripplehq/ripple/interaction"
	"github.com/ripplehq/ripple/server"
	"github.com/ripplehq/ripple/server/middlewares"
	"github.com/ripplehq/ripple/socialgraph"
	. "github.com/ripplehq/ripple/utils"
	"github.com/ripplehq/ripple/utils/dotenv"
	. "github.com/ripplehq/ripple/utils/flag"
	. "github.com/ripplehq/ripple/utils/log"
	gintrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/gin-gonic/gin"
)

func cleanup() {
	CloseProfiler()
	CloseTracer()
	Log.Info("api server shutdown")
}

func main() {
	defer cleanup()

	Parse()

	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}

	StartTracer()
	StartProfiler()

	db, err := GetDBConnection()
	if err != nil {
		Log.Fatal("fail to connect database: ", err)
	}
	DatabaseSetupAndMigration(db)

	var cache feed.CacheStore
	redisClient := GetRedisClient()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		// A broken cache only costs performance, never availability.
		Log.Error("redis unavailable, fall back to in-process feed cache: ", err)
		cache = feed.NewMemoryCacheStore()
	} else {
		cache = feed.NewRedisCacheStore(redisClient)
	}

	graph := socialgraph.NewDBGraph(db)
	bus := feed.NewEventBus()

	// Follower feed invalidation fan-out on content publish.
	worker := feed.NewInvalidationWorker(bus, cache, graph)
	go func() {
		if err := worker.Run(context.Background()); err != nil {
			Log.Error("invalidation worker stopped: ", err)
		}
	}()

	statsdClient, err := GetStatsdClient()
	if err != nil {
		Log.Error("statsd unavailable, metrics disabled: ", err)
	}

	handler := &server.APIHandler{
		DB:        db,
		Recorder:  interaction.NewRecorder(db, graph, bus),
		Assembler: feed.NewAssembler(db, cache, graph),
		Cache:     cache,
		Statsd:    statsdClient,
	}

	// Middlewares
	middlewares.Setup()

	// Default With the Logger and Recovery middleware already attached
	router := gin.Default()

	router.Use(cors.Default())
	router.Use(gintrace.Middleware(*ServiceName))
	router.Use(middlewares.JWT())

	handler.Register(router)

	Log.Info("api server initialized")
	router.Run() // listen and serve on 0.0.0.0:8080
}
