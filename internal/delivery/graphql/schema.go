package graphql

// Schema is the full API surface. Business failures travel inside
// UserResponse; infrastructure failures surface as GraphQL errors.
const Schema = `
	schema {
		query: Query
		mutation: Mutation
	}

	type Query {
		me: User
	}

	type Mutation {
		register(options: UsernamePasswordInput!): UserResponse!
		login(usernameOrEmail: String!, password: String!): UserResponse!
		logout: Boolean!
		forgotPassword(email: String!): Boolean!
		changePassword(token: String!, newPassword: String!): UserResponse!
	}

	input UsernamePasswordInput {
		email: String!
		username: String!
		password: String!
	}

	type User {
		id: ID!
		username: String!
		email: String!
		createdAt: String!
		updatedAt: String!
	}

	type FieldError {
		field: String!
		message: String!
	}

	type UserResponse {
		user: User
		errors: [FieldError!]
	}
`
