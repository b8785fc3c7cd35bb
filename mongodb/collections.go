package mongodb

// ConnectionsCollection holds one document per (user, provider, provider user) connection.
const ConnectionsCollection = "user_connections"
