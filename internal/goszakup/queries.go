package goszakup

const contractsQuery = `
query GetContracts($customerBin: String!, $finYear: Int!, $limit: Int!, $after: Int) {
  Contract(
    filter: {
      customerBin: $customerBin
      finYear: $finYear
    }
    limit: $limit
    after: $after
  ) {
    id
    contractNumberSys
    trdBuyNumberAnno
    trdBuyNameRu
    descriptionRu
    finYear
    contractSum
    signDate

    Supplier {
      nameRu
    }

    RefContractType {
      nameRu
    }

    RefContractStatus {
      nameRu
    }

    FaktTradeMethods {
      nameRu
    }

    ContractUnits {
      plnPointId
      itemPrice
      quantity
      totalSum
    }
  }
}
`

const plansQuery = `
query GetPlans($ids: [Int!], $limit: Int!, $after: Int) {
  Plans(
    filter: { id: $ids }
    limit: $limit
    after: $after
  ) {
    id
    nameRu
    count
    price
    amount
    extraDescRu
  }
}
`
