package mocks

//go:generate mockgen -destination=./mock_gateway.go -package=mocks github.com/rxtech-lab/equity-trader/internal/trading/provider Gateway
//go:generate mockgen -destination=./mock_research.go -package=mocks github.com/rxtech-lab/equity-trader/internal/research RatingsProvider,StatisticsProvider
