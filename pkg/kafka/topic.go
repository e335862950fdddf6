package kafka

import "fmt"

// TopicPrefix prefixes every GoMarketplace topic.
const TopicPrefix = "ecommerce"

// Topic returns the fully-qualified topic name, e.g. "ecommerce.cart.updated".
func Topic(domain, action string) string {
	return fmt.Sprintf("%s.%s.%s", TopicPrefix, domain, action)
}
