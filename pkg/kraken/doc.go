// Package kraken implements a REST client for the Kraken exchange.
//
// The package includes:
//   - Protocol: endpoint paths and request building per operation
//   - Sign: the API-Sign computation over an insertion ordered payload
//   - Client: authenticated dispatch, rate limiting and response classification
//   - Normalizer: decimal views over the string amounts Kraken returns
//
// Example usage:
//
//	client, err := kraken.New(core.DefaultConfig().WithCredentials(creds))
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//	resp, err := client.GetOpenOrders(ctx, kraken.WithTrades(true))
//
// Kraken REST API documentation: https://docs.kraken.com/api/
package kraken
