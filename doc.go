package main

// kafkaloadgen publishes synthetic stock trades to a Kafka topic at a steady
// rate, for load testing Amazon MSK clusters and the consumers behind them.
//
// Every record is a JSON object keyed by its account_id:
//
// #   - account_id (ACC + 4 digits)
// #   - trade_id (TRD + 6 digits)
// #   - symbol (one of AAPL, GOOGL, MSFT, AMZN, TSLA, META, NVDA)
// #   - trade_type (BUY or SELL)
// #   - quantity (1..1000)
// #   - price (50.00..500.00, two decimals)
// #   - timestamp (UTC, microseconds, no zone suffix)
//
// Extra fields can be added with NAME=VALUE arguments, using the same
// generator syntax loadgen used for span fields.
//
// - rate is the number of records per second; the delay between records is
// 1/rate. A rate of 0 means the process stays up but publishes nothing, so
// the generator can be parked without scaling its deployment to zero.
// - count and runtime stop the producer early (0 means no limit).
// - sender picks the client: kafka (franz-go), sarama, kafkago, or print and
// dummy for running without a broker.
// - auth=iam signs an OAUTHBEARER token with the default AWS credential chain
// for every SASL handshake; auth=none talks plaintext to a local broker.
//
// The producer logs a line every 100 records, and on the way out (signal,
// limit or publish failure) always flushes and closes the client, so
// records already handed over are not lost.

// cmd/tradesink is the other end: it reads the topic, validates every record
// and reports the receive rate.
